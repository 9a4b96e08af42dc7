package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gaspardpetit/augur/core/logx"
)

const maxFormBody = 64 << 10

// BirthInfo is the birth-information form submitted to POST /predict.
type BirthInfo struct {
	Name      string `json:"name,omitempty"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	BirthTime string `json:"birthTime,omitempty"`
	Province  string `json:"province,omitempty"`
	City      string `json:"city,omitempty"`
}

type predictReply struct {
	Message string    `json:"message"`
	Data    BirthInfo `json:"data"`
}

type predictFailure struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func setPredictCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "OPTIONS,POST")
}

// decodeValidated reads a JSON body, checks it against the named schema and
// decodes it into dst.
func decodeValidated(r *http.Request, schema string, dst any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody))
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := validateBody(schema, raw); err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// PredictHandler acknowledges a birth-information form by echoing its
// fields back.
func PredictHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setPredictCORS(w.Header())
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		var info BirthInfo
		if err := decodeValidated(r, "BirthInfo", &info); err != nil {
			logx.Log.Warn().Err(err).Msg("predict form rejected")
			writeJSON(w, http.StatusInternalServerError, predictFailure{Message: "Internal server error", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, predictReply{Message: "数据接收成功", Data: info})
	}
}
