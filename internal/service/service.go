package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/movelend/lending-service/internal/config"
	"github.com/movelend/lending-service/internal/models"
	"github.com/movelend/lending-service/internal/riskengine"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence surface the service needs. Implemented by
// *repository.Repository; stubbed in tests.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id int64) (*models.User, error)

	GetRiskProfile(userID int64) (*models.RiskProfile, error)
	SaveRiskProfile(profile *models.RiskProfile) error
	ListInactiveProfiles(cutoff time.Time) ([]*models.RiskProfile, error)

	CreateLoan(loan *models.Loan) error
	FindLoanByID(id string) (*models.Loan, error)
	UpdateLoanStatus(id string, status models.LoanStatus) error

	InsertSchedule(loanID string, entries []riskengine.PaymentScheduleEntry) error
	ListSchedule(loanID string) ([]riskengine.PaymentScheduleEntry, error)
	FindScheduleEntry(loanID string, number uint32) (*riskengine.PaymentScheduleEntry, error)
	MarkEntryPaid(loanID string, number uint32, paidAt int64) error
	CountUnpaidEntries(loanID string) (int, error)
	ListDueReminders(horizon int64) ([]models.PaymentReminder, error)

	CastVote(vote *models.LoanVote) error
	CountVotes(loanID string) (*models.VoteCount, error)

	CreatePaymentRequest(req *models.PaymentRequest) error
	FindPaymentRequestByID(id string) (*models.PaymentRequest, error)
	UpdatePaymentRequestStatus(id string, status models.PaymentRequestStatus) error
	ExpireStaleRequests(now time.Time) (int64, error)
}

// Mailer sends settlement receipts. Implemented by *email.Sender; stubbed
// in tests.
type Mailer interface {
	SendPaymentRequestReceipt(to, username string, req *models.PaymentRequest) error
}

// Service handles business logic
type Service struct {
	store  Store
	engine *riskengine.Engine
	mailer Mailer
	log    *logrus.Logger
	config *config.Config
	now    func() time.Time
}

// NewService initializes a new service
func NewService(store Store, engine *riskengine.Engine, mailer Mailer, log *logrus.Logger, cfg *config.Config, now func() time.Time) *Service {
	return &Service{store: store, engine: engine, mailer: mailer, log: log, config: cfg, now: now}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, walletAddress, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		WalletAddress: walletAddress,
		PasswordHash:  string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
