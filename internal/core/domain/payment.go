package domain

// TransactionIDPrefix marks identifiers issued by the payment gateway.
const TransactionIDPrefix = "txn_"

type PaymentReceipt struct {
	TransactionID string
	Message       string
}
