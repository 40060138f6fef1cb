package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint 返回语句文本的短 hash，用于日志关联与指标标签。
func Fingerprint(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:6])
}
