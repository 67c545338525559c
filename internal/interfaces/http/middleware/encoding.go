package middleware

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// legacyCharsets Content-Type 中可能声明的单字节编码
var legacyCharsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// EnsureUTF8Body 把请求体统一转成 UTF-8
// 声明了单字节 charset 时按声明解码；未声明且不是合法 UTF-8 时按 Windows-1252 解码
// （Windows 下的法语客户端会这样发送带重音的内容）
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		raw, err := io.ReadAll(c.Request.Body)
		c.Request.Body.Close()
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		body := raw
		if enc := declaredCharset(c.GetHeader("Content-Type")); enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
				body = decoded
			}
		} else if !utf8.Valid(raw) {
			if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil && utf8.Valid(decoded) {
				body = decoded
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Request.ContentLength = int64(len(body))
		c.Next()
	}
}

// declaredCharset 返回 Content-Type 声明的单字节编码，UTF-8 或未声明时返回 nil
func declaredCharset(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	return legacyCharsets[strings.ToLower(params["charset"])]
}
