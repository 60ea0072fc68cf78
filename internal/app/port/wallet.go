package port

// WalletProvider defines the interface for fetching user addresses for batch runs.
type WalletProvider interface {
	GetWallets() ([]string, error)
}
