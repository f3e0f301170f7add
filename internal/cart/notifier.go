package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Messages shown to shoppers.
const (
	MsgOutOfStock    = "Requested amount is out of stock"
	MsgAddFailed     = "Error adding product"
	MsgRemoveFailed  = "Error removing product"
	MsgUpdateFailed  = "Error updating product amount"
	MsgReconciled    = "Some products in your cart were adjusted to the available stock"
	MsgPersistFailed = "Your cart could not be saved"
	MsgCheckFailed   = "Error checking product stock"
)

type NoticeKind string

const (
	NoticeError NoticeKind = "error"
	NoticeInfo  NoticeKind = "info"
)

// Notice is a user-facing message about a cart operation.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	ProductID int        `json:"product_id,omitempty"`
	Message   string     `json:"message"`
	Err       error      `json:"-"`
}

// Notifier delivers notices to whatever shows them to the shopper.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notice) {
	fields := []zap.Field{zap.String("kind", string(n.Kind)), zap.Int("product_id", n.ProductID)}
	if n.Err != nil {
		fields = append(fields, zap.Error(n.Err))
	}
	if n.Kind == NoticeError {
		l.Log.Warn(n.Message, fields...)
		return
	}
	l.Log.Info(n.Message, fields...)
}

// UserMessage returns the shopper-facing message for an error returned by a
// Store operation, or "" for errors that did not come from one.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrOutOfStock):
		return MsgOutOfStock
	case errors.Is(err, ErrPersist):
		return MsgPersistFailed
	case errors.Is(err, ErrAddFailed):
		return MsgAddFailed
	case errors.Is(err, ErrRemoveFailed):
		return MsgRemoveFailed
	case errors.Is(err, ErrUpdateFailed):
		return MsgUpdateFailed
	case errors.Is(err, ErrReconcileFailed):
		return MsgCheckFailed
	}
	return ""
}

func noticeFor(productID int, fallback string, err error) Notice {
	msg := UserMessage(err)
	if msg == "" {
		msg = fallback
	}
	return Notice{Kind: NoticeError, ProductID: productID, Message: msg, Err: err}
}
