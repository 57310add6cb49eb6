package handler

import (
	"net/http"

	"github.com/edvin/dbvault/internal/api/request"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/crypto"
)

// Credential handles the encrypt/decrypt boundary operation. Input and
// output transit this handler in memory only; nothing is persisted or
// logged.
type Credential struct {
	cipher *crypto.Cipher
}

func NewCredential(cipher *crypto.Cipher) *Credential {
	return &Credential{cipher: cipher}
}

func (h *Credential) Handle(w http.ResponseWriter, r *http.Request) {
	var req request.Credential
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result string
	var err error
	switch req.Action {
	case "encrypt":
		result, err = h.cipher.Encrypt(req.Data)
	case "decrypt":
		result, err = h.cipher.Decrypt(req.Data)
	}
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, req.Action+" failed")
		return
	}

	response.WriteSuccess(w, http.StatusOK, map[string]any{"result": result})
}
