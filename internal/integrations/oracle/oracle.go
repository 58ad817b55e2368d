package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/movelend/lending-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles integration with the reputation rate oracle. The oracle
// publishes the mid-tier rate table as an XML document; the client resolves
// a score against it. Any transport or parse failure is returned to the
// caller — the risk engine owns the fallback policy, not this client.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new oracle client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.OracleURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// fetchTiers retrieves the raw rate table document
func (c *Client) fetchTiers(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	// Log the raw XML response for debugging
	c.log.Debugf("Oracle XML response: %s", string(body))

	return body, nil
}

// parseTiers extracts the rate for the given score from the XML table. The
// highest tier whose MinScore is at or below the score wins.
func (c *Client) parseTiers(rawBody []byte, score int) (uint32, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	tierElements := doc.FindElements("//RateTiers/Tier")
	if len(tierElements) == 0 {
		return 0, fmt.Errorf("no rate tiers found in XML")
	}

	bestMin := -1
	var bestRate uint32
	for _, tier := range tierElements {
		minElement := tier.FindElement("./MinScore")
		rateElement := tier.FindElement("./RateBps")
		if minElement == nil || rateElement == nil {
			return 0, fmt.Errorf("malformed tier element in XML")
		}

		var minScore int
		if _, err := fmt.Sscanf(minElement.Text(), "%d", &minScore); err != nil {
			return 0, fmt.Errorf("failed to parse tier min score: %v", err)
		}
		var rate uint32
		if _, err := fmt.Sscanf(rateElement.Text(), "%d", &rate); err != nil {
			return 0, fmt.Errorf("failed to parse tier rate: %v", err)
		}

		if minScore <= score && minScore > bestMin {
			bestMin = minScore
			bestRate = rate
		}
	}

	if bestMin < 0 {
		return 0, fmt.Errorf("no rate tier covers score %d", score)
	}
	return bestRate, nil
}

// TierRate resolves a reputation score to an interest rate in basis points.
// Implements the risk engine's RateLookup.
func (c *Client) TierRate(ctx context.Context, score int) (uint32, error) {
	body, err := c.fetchTiers(ctx)
	if err != nil {
		return 0, err
	}

	rate, err := c.parseTiers(body, score)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Resolved score %d to %d bps via rate oracle", score, rate)
	return rate, nil
}
