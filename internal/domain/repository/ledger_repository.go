package repository

import (
	"context"

	"github.com/linkstack-app/payment-service/internal/domain/model"
)

// Ledger exposes reads and invariant-preserving writes over the payment
// ledger entities. Implementations are bound either to the base connection
// or to one database transaction.
type Ledger interface {
	// LinkByID returns the custom link or nil when it does not exist
	LinkByID(ctx context.Context, id int64) (*model.CustomLink, error)

	// IncrementLinkUsage bumps the product usage counter atomically
	IncrementLinkUsage(ctx context.Context, linkID int64) error

	// AccountByID returns the Connect account row by primary key, nil when missing
	AccountByID(ctx context.Context, id int64) (*model.ConnectAccount, error)

	// AccountByUniversalID returns the seller's account by user uuid string, nil when missing
	AccountByUniversalID(ctx context.Context, universalID string) (*model.ConnectAccount, error)

	// AccountByStripeID returns the account matching a Stripe acct_ id, nil when missing
	AccountByStripeID(ctx context.Context, stripeAccountID string) (*model.ConnectAccount, error)

	// AccountsBatch pages through all Connect accounts ordered by id
	AccountsBatch(ctx context.Context, limit, offset int) ([]*model.ConnectAccount, error)

	// CreateAccount inserts a new Connect account row
	CreateAccount(ctx context.Context, account *model.ConnectAccount) error

	// SaveAccount persists mutations to an existing account row
	SaveAccount(ctx context.Context, account *model.ConnectAccount) error

	// CreateOrder inserts a new order row
	CreateOrder(ctx context.Context, order *model.Order) error

	// OrderByID returns an order by primary key, nil when missing
	OrderByID(ctx context.Context, id int64) (*model.Order, error)

	// OrderByOrderID returns an order by its human-readable identifier, nil when missing
	OrderByOrderID(ctx context.Context, orderID string) (*model.Order, error)

	// SaveOrder persists mutations to an existing order row
	SaveOrder(ctx context.Context, order *model.Order) error

	// OrdersForAccount lists a seller's orders newest first
	OrdersForAccount(ctx context.Context, connectAccountID int64, limit, offset int) ([]*model.Order, error)

	// CreateTransaction inserts a new payment transaction row
	CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error

	// TransactionByIntentID returns the transaction for a payment intent, nil when missing
	TransactionByIntentID(ctx context.Context, intentID string) (*model.PaymentTransaction, error)

	// TransactionBySessionID returns the transaction for a checkout session, nil when missing
	TransactionBySessionID(ctx context.Context, sessionID string) (*model.PaymentTransaction, error)

	// TransactionByOrderID returns the transaction for an order row, nil when missing
	TransactionByOrderID(ctx context.Context, orderID int64) (*model.PaymentTransaction, error)

	// SaveTransaction persists mutations to an existing transaction row
	SaveTransaction(ctx context.Context, tx *model.PaymentTransaction) error

	// TransactionsForAccount lists a seller's payment transactions newest first
	TransactionsForAccount(ctx context.Context, connectAccountID int64, limit, offset int) ([]*model.PaymentTransaction, error)
}

// LedgerRepository is the transactional boundary around the ledger. Webhook
// handling and refund accounting run through it so that partial mutations
// can never commit.
type LedgerRepository interface {
	Ledger

	// Atomically runs fn inside one database transaction; any error rolls
	// the whole unit back.
	Atomically(ctx context.Context, fn func(ctx context.Context, ledger Ledger) error) error

	// RecordEventOnce inserts the webhook event row and, only when this
	// delivery is the first with its Stripe event ID, runs apply in the same
	// transaction. Returns applied=false for duplicate deliveries. An error
	// from apply rolls back the event row together with every mutation, so a
	// provider retry starts from a clean slate.
	RecordEventOnce(ctx context.Context, event *model.ConnectWebhookEvent, apply func(ctx context.Context, ledger Ledger) error) (applied bool, err error)
}
