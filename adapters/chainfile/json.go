package chainfile

import (
	"encoding/json"

	"chainflux/core/chain"
	"chainflux/internal/errors"
)

// parseJSON decodes the canonical wire form. Strictness lives in the chain
// types themselves: unknown fields at any depth reject the document.
func parseJSON(data []byte) (*chain.ProcessingChain, error) {
	var c chain.ProcessingChain
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Parsing("decoding chain JSON", err)
	}
	return &c, nil
}

// encodeJSON renders the canonical wire form, indented for diff-friendly
// files.
func encodeJSON(c *chain.ProcessingChain) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
