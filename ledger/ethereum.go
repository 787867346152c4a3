package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps the ledger node connection behind the confirmed/unconfirmed
// predicate the check-in flow needs.
type Client struct {
	eth *ethclient.Client
}

func NewClient(eth *ethclient.Client) *Client {
	return &Client{eth: eth}
}

// Confirmed reports whether the transaction has been mined successfully. An
// unknown or still-pending transaction is simply unconfirmed; RPC failures
// surface as errors for the caller to classify.
func (c *Client) Confirmed(ctx context.Context, txID string) (bool, error) {
	if c.eth == nil {
		return false, fmt.Errorf("ledger client not initialized")
	}

	hash := txID
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}
	if len(hash) != 2+2*common.HashLength {
		return false, fmt.Errorf("invalid transaction id: %s", txID)
	}

	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		return false, fmt.Errorf("failed to fetch receipt for %s: %w", txID, err)
	}
	if receipt.BlockNumber == nil {
		return false, nil
	}

	return receipt.Status == types.ReceiptStatusSuccessful, nil
}
