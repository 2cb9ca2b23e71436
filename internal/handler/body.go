package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// requestBody はJSONリクエストボディの汎用表現。
// 元のフィールド型を保ったままバリデーターに渡せるよう、
// 値は文字列化して取り出す。
type requestBody map[string]any

// decodeBody はリクエストボディをrequestBodyにデコードする。
// 空ボディは空のマップとして扱う。
func decodeBody(r *http.Request) (requestBody, error) {
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if body == nil {
		body = requestBody{}
	}
	return body, nil
}

// field はキーの値を文字列化して返す。キーが無い、またはnullの場合はnilを返す。
// 数値は十進表記の文字列になり、真偽値は"true"/"false"になる。
// 真偽値が"0"/"1"にならないのは意図的で、isPublicの検証
// （文字列リテラルの"0"/"1"のみ受理）がboolean値を弾くための挙動。
func (b requestBody) field(key string) *string {
	v, ok := b[key]
	if !ok || v == nil {
		return nil
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		s = string(raw)
	}
	return &s
}

// stringField はキーの値を文字列化して返す。キーが無い場合は空文字列を返す。
func (b requestBody) stringField(key string) string {
	if s := b.field(key); s != nil {
		return *s
	}
	return ""
}

// intField はキーの値を整数として返す。解釈できない場合は0を返す。
func (b requestBody) intField(key string) int {
	s := b.field(key)
	if s == nil {
		return 0
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
