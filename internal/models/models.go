package models

// RawTransaction is a record as it appears in the transaction dump. Required
// fields are pointers so a missing key can be told apart from a zero value.
// ActionData is left untyped so a record whose actionData is not an object
// still decodes.
type RawTransaction struct {
	UserWallet *string `json:"userWallet"`
	Action     *string `json:"action"`
	Timestamp  any     `json:"timestamp"`
	ActionData any     `json:"actionData"`
}

// Transaction is a normalized transaction row.
type Transaction struct {
	Wallet    string
	Action    string
	Timestamp int64
	USDValue  float64
}

const (
	ActionDeposit         = "deposit"
	ActionBorrow          = "borrow"
	ActionRepay           = "repay"
	ActionLiquidationCall = "liquidationcall"
)

// WalletFeatures is the per-wallet feature vector. TrueScore is the
// synthetic training label and is never part of the model input.
type WalletFeatures struct {
	Wallet               string
	TotalDepositedUSD    float64
	TotalBorrowedUSD     float64
	TotalRepaidUSD       float64
	NetFlowUSD           float64
	RepaymentRatio       float64
	BorrowToDepositRatio float64
	NumLiquidations      int
	NumTransactions      int
	UniqueActions        int
	AvgTimeBetweenTx     float64
	NumDaysActive        int
	TrueScore            float64
}

// FeatureNames lists the model input columns in the order Vector emits them.
var FeatureNames = []string{
	"total_deposited_usd",
	"total_borrowed_usd",
	"total_repaid_usd",
	"net_flow_usd",
	"repayment_ratio",
	"borrow_to_deposit_ratio",
	"num_liquidations",
	"num_transactions",
	"unique_actions",
	"avg_time_between_tx",
	"num_days_active",
}

// Vector returns the model input row, excluding the wallet and the label.
func (f WalletFeatures) Vector() []float64 {
	return []float64{
		f.TotalDepositedUSD,
		f.TotalBorrowedUSD,
		f.TotalRepaidUSD,
		f.NetFlowUSD,
		f.RepaymentRatio,
		f.BorrowToDepositRatio,
		float64(f.NumLiquidations),
		float64(f.NumTransactions),
		float64(f.UniqueActions),
		f.AvgTimeBetweenTx,
		float64(f.NumDaysActive),
	}
}

// WalletScore is one output row.
type WalletScore struct {
	Wallet         string
	PredictedScore float64
	CreditScore    float64
}
