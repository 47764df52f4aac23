// Package api はHTTPハンドラー間で共有するレスポンス型を定義します。
package api

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
	// Symbol はデータ不足など銘柄に起因するエラーの場合に設定されます。
	Symbol string `json:"symbol,omitempty"`
}

// DateLayout はAPIで扱う日付の書式です。
const DateLayout = "2006-01-02"
