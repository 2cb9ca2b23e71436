// Package handler はHTTPハンドラーを提供する。
//
// このAPIの公開契約では、ほぼ全ての失敗はHTTP 200で
// {success:false, message} のエンベロープとして返る。
// 読み取りエンドポイントはエンベロープなしで生のレコード/配列を返す。
// この非対称性は既存クライアントとの互換性のために維持される。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope は変更系・拒否系レスポンスの共通形。
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// InsertedID は作成系操作でのみ設定される
	InsertedID string `json:"insertedID,omitempty"`
}

// writeJSON は任意の値をJSONとしてHTTP 200で書き込む。
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeEnvelope は成功フラグとメッセージのエンベロープを書き込む。
func writeEnvelope(w http.ResponseWriter, success bool, message string) {
	writeJSON(w, envelope{Success: success, Message: message})
}

// writeCreated は作成系操作のエンベロープをinsertedID付きで書き込む。
func writeCreated(w http.ResponseWriter, message, insertedID string) {
	writeJSON(w, envelope{Success: true, Message: message, InsertedID: insertedID})
}

// writeValidationErrors は検証失敗のエンベロープを書き込む。
// 蓄積された全メッセージを配列のままmessageに載せる（元の公開契約）。
func writeValidationErrors(w http.ResponseWriter, errs []string) {
	writeJSON(w, map[string]any{
		"success": false,
		"message": errs,
	})
}
