// Package models holds the JSON bodies of the HTTP API.
package models

// DefaultCharset is used by brute-force requests that leave Charset empty.
const DefaultCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

const (
	ModeBrute = "brute"
	ModeDict  = "dict"
	ModeMask  = "mask"
)

type CrackHashRequest struct {
	Hash      string `json:"hash" binding:"required,hexadecimal"`
	Algorithm string `json:"algorithm" binding:"required"`
	Mode      string `json:"mode" binding:"required,oneof=brute dict mask"`

	Charset   string `json:"charset"`
	MaxLength int    `json:"maxLength" binding:"required_if=Mode brute,gte=0,lte=256"`

	// Wordlist is a file name inside the server's wordlist directory.
	Wordlist string `json:"wordlist" binding:"required_if=Mode dict"`
	Rules    bool   `json:"rules"`

	Mask string `json:"mask" binding:"required_if=Mode mask"`
}

type CrackHashResponse struct {
	RequestID string `json:"requestId"`
}

type Progress struct {
	Done    uint64  `json:"done"`
	Total   uint64  `json:"total"`
	Percent float64 `json:"percent"`
}

type StatusResponse struct {
	Status   string    `json:"status"`
	Data     []string  `json:"data"`
	Progress *Progress `json:"progress,omitempty"`
	Error    string    `json:"error,omitempty"`
	Code     string    `json:"code,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
