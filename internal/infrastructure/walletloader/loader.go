package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"vault_client/internal/app/port"

	"github.com/ethereum/go-ethereum/common"
)

const defaultWalletFilePath = "data/wallets.txt"

// WalletFileLoader implements the port.WalletProvider interface by loading user addresses from a file.
type WalletFileLoader struct {
	filePath   string
	loggerInfo func(msg string, args ...any)
}

// NewWalletFileLoader creates a new WalletFileLoader. An empty path falls back to data/wallets.txt.
func NewWalletFileLoader(path string, loggerInfo func(msg string, args ...any)) port.WalletProvider {
	if path == "" {
		path = defaultWalletFilePath
	}
	return &WalletFileLoader{
		filePath:   path,
		loggerInfo: loggerInfo,
	}
}

// GetWallets reads one address per line, skipping blanks, comments, malformed lines and duplicates.
// Addresses are returned in checksum form, in file order.
func (l *WalletFileLoader) GetWallets() ([]string, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var wallets []string
	seen := make(map[common.Address]struct{})
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !common.IsHexAddress(line) || !strings.HasPrefix(line, "0x") {
			if l.loggerInfo != nil {
				l.loggerInfo("Skipping invalid wallet address format", "file", l.filePath, "line_number", lineNum, "address", line)
			}
			continue
		}
		addr := common.HexToAddress(line)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		wallets = append(wallets, addr.Hex())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", l.filePath, err)
	}

	if l.loggerInfo != nil {
		l.loggerInfo("Wallets loaded successfully from file", "count", len(wallets), "path", l.filePath)
	}
	return wallets, nil
}
