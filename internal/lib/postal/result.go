// Package postal looks up Brazilian postal codes (CEP) in the ViaCEP
// directory and caches the results.
package postal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Result is a directory entry. Field names follow the ViaCEP payload.
type Result struct {
	PostalCode   string  `json:"cep"`
	Street       string  `json:"logradouro"`
	Complement   string  `json:"complemento"`
	Neighborhood string  `json:"bairro"`
	City         string  `json:"localidade"`
	RegionCode   string  `json:"uf"`
	IBGE         string  `json:"ibge"`
	GIA          string  `json:"gia"`
	DDD          string  `json:"ddd"`
	SIAFI        string  `json:"siafi"`
	NotFound     notFlag `json:"erro,omitempty"`
}

// notFlag accepts both the boolean and the quoted form of "erro", which
// ViaCEP has used at different times.
type notFlag bool

func (f *notFlag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f = notFlag(v)
	return nil
}

func (f notFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}
