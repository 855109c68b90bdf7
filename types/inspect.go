package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// InspectSummary is one txpool_inspect line. Nodes have used two layouts:
//
//	0x3375ee30428b2a71c428afa5e89e427905f95f7e: 0 wei + 500000 × 20000000000 gas
//	0x3375ee30428b2a71c428afa5e89e427905f95f7e: 0 wei + 500000 gas × 20000000000 wei
//
// and "contract creation" in place of the recipient for deployments.
type InspectSummary string

// InspectEntry is the parsed form of an InspectSummary.
type InspectEntry struct {
	To       *common.Address // nil for contract creation
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
}

const contractCreation = "contract creation"

// Parse splits the summary into recipient, value, gas limit and gas price.
func (s InspectSummary) Parse() (*InspectEntry, error) {
	target, rest, ok := strings.Cut(string(s), ": ")
	if !ok {
		return nil, fmt.Errorf("inspect summary %q: missing recipient", s)
	}

	entry := new(InspectEntry)
	if target != contractCreation {
		if !common.IsHexAddress(target) {
			return nil, fmt.Errorf("inspect summary %q: bad recipient", s)
		}
		to := common.HexToAddress(target)
		entry.To = &to
	}

	var numbers []string
	for _, field := range strings.Fields(rest) {
		switch field {
		case "wei", "gas", "+", "×":
			continue
		}
		numbers = append(numbers, field)
	}
	if len(numbers) != 3 || !strings.Contains(rest, "×") {
		return nil, fmt.Errorf("inspect summary %q: unexpected layout", s)
	}

	value, ok := new(big.Int).SetString(numbers[0], 10)
	if !ok {
		return nil, fmt.Errorf("inspect summary %q: bad value %q", s, numbers[0])
	}
	gas, err := strconv.ParseUint(numbers[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("inspect summary %q: bad gas %q", s, numbers[1])
	}
	price, ok := new(big.Int).SetString(numbers[2], 10)
	if !ok {
		return nil, fmt.Errorf("inspect summary %q: bad gas price %q", s, numbers[2])
	}

	entry.Value, entry.Gas, entry.GasPrice = value, gas, price
	return entry, nil
}

// FormatInspectSummary renders a summary in the current node layout.
func FormatInspectSummary(to *common.Address, value *big.Int, gas uint64, gasPrice *big.Int) InspectSummary {
	target := contractCreation
	if to != nil {
		target = to.Hex()
	}
	return InspectSummary(fmt.Sprintf("%s: %v wei + %d gas × %v wei", target, value, gas, gasPrice))
}
