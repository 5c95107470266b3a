// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Utilities implements the chain encoding helpers for Ethereum.
type Utilities struct{}

// UTF8ToFixedBytes returns the 0x prefixed hex encoding of the UTF-8 bytes of
// s. Leading and trailing NUL bytes are dropped. Padding to the fixed size is
// applied when the value is coerced into the ABI argument.
func (Utilities) UTF8ToFixedBytes(s string) (string, error) {
	return hexutil.Encode([]byte(strings.Trim(s, "\x00"))), nil
}
