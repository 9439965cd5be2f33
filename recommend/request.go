package recommend

import (
	"fmt"

	"github.com/robertmeta/morning-cli/model"
)

// BuildRequest constructs a Request from raw string inputs (CLI flags,
// query parameters). An empty userID selects the anonymous path.
func BuildRequest(userID, condition, mode string) (Request, error) {
	m, err := model.ParseMode(mode)
	if err != nil {
		return Request{}, fmt.Errorf("failed to parse mode: %w", err)
	}

	return Request{
		UserID:    userID,
		Condition: condition,
		Mode:      m,
	}, nil
}
