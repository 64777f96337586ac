package payment

import "github.com/google/uuid"

// TxRefPrefix makes transaction references recognizable in gateway dashboards
// and logs.
const TxRefPrefix = "tx-"

// NewTxRef mints a candidate transaction reference: the fixed prefix plus a
// 128-bit random suffix. Uniqueness is enforced by the store's unique index,
// not assumed from randomness; InitiatePayment re-mints on a reported
// collision.
func NewTxRef() string {
	return TxRefPrefix + uuid.NewString()
}
