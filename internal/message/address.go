package message

import (
	"regexp"
	"strings"

	"github.com/nbd-wtf/go-nostr/nip19"
)

var (
	ethAddressRE = regexp.MustCompile(`^(0x[a-zA-Z0-9]{4})[a-zA-Z0-9]+([a-zA-Z0-9]{4})$`)
	hexKeyRE     = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// ShortenAddress 把完整地址缩短为便于展示的形式，无法识别时原样返回。
//
//	0x1234567890abcdef → 0x1234…cdef
//	64 位 hex 公钥     → npub1abcd…wxyz
func ShortenAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if m := ethAddressRE.FindStringSubmatch(addr); m != nil {
		return m[1] + "…" + m[2]
	}
	if hexKeyRE.MatchString(addr) {
		npub, err := nip19.EncodePublicKey(addr)
		if err != nil {
			return addr
		}
		addr = npub
	}
	if strings.HasPrefix(addr, "npub1") && len(addr) > len("npub1")+8 {
		body := addr[len("npub1"):]
		return "npub1" + body[:4] + "…" + body[len(body)-4:]
	}
	return addr
}
