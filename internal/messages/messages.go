// Package messages holds every user-facing string. The product is Japanese
// first; upstream detector messages are English and are never shown as-is.
package messages

import (
	"fmt"
	"strings"
)

const (
	NoFaceDetected     = "画像内に顔が見つかりませんでした。"
	InvalidImageFormat = "画像の形式が正しくありません。"
	AuthFailure        = "APIキーの認証に失敗しました。"
	UpstreamTimeout    = "サーバーの応答がタイムアウトしました。"
	ProcessingError    = "画像の処理中にエラーが発生しました。"

	MissingConfig    = "FACE_API_URL または FACE_API_KEY が設定されていません。"
	MissingFile      = "ファイルが送信されていません。"
	ProxyNetwork     = "ネットワークまたはサーバーに接続できません。"
	ClientNetwork    = "ネットワークに接続できません。もう一度お試しください。"
	MalformedReply   = "検出サーバーからの応答が不正です。"
	MethodNotAllowed = "POST メソッドのみ使用できます。"

	UnsupportedType = "画像ファイルを選択してください（jpg/png/webp/gif）。"
	FileTooLarge    = "ファイルサイズは 5MB 未満にしてください。"
	NoImageLoaded   = "先に画像を追加してください。"
	NoFacesFound    = "顔が見つかりませんでした。"
	DetectionFailed = "検出中にエラーが発生しました。"
)

// ProxyTimeout is returned by the proxy when the upstream exceeds its budget.
func ProxyTimeout(ms int64) string {
	return fmt.Sprintf("顔検出サーバーへのリクエストがタイムアウトしました（%dミリ秒）", ms)
}

// StatusError is the last-resort message when an error response has no body.
func StatusError(status int) string {
	return fmt.Sprintf("エラーが発生しました（%d）", status)
}

// Category is the class an upstream failure message falls into.
type Category string

const (
	CategoryNoFace       Category = "no_face"
	CategoryInvalidImage Category = "invalid_image"
	CategoryAuth         Category = "auth"
	CategoryTimeout      Category = "timeout"
	CategoryProcessing   Category = "processing"
)

type rule struct {
	keyword  string
	category Category
}

// rules are evaluated in order; the first keyword found wins.
var rules = []rule{
	{"no face", CategoryNoFace},
	{"invalid image", CategoryInvalidImage},
	{"api key", CategoryAuth},
	{"timeout", CategoryTimeout},
}

var text = map[Category]string{
	CategoryNoFace:       NoFaceDetected,
	CategoryInvalidImage: InvalidImageFormat,
	CategoryAuth:         AuthFailure,
	CategoryTimeout:      UpstreamTimeout,
	CategoryProcessing:   ProcessingError,
}

// Classify maps a raw upstream message to a category by case-insensitive
// substring match. Unmatched messages are CategoryProcessing.
func Classify(raw string) Category {
	s := strings.ToLower(raw)
	for _, r := range rules {
		if strings.Contains(s, r.keyword) {
			return r.category
		}
	}
	return CategoryProcessing
}

// Text returns the localized message for a category.
func (c Category) Text() string {
	if s, ok := text[c]; ok {
		return s
	}
	return ProcessingError
}
