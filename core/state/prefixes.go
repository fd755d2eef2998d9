package state

var (
	accountPrefix      = []byte("account/")
	tokenMintPrefix    = []byte("token/mint/")
	tokenAccountPrefix = []byte("token/account/")
	escrowRecordPrefix = []byte("mountbreed/escrow/")
	cooldownPrefix     = []byte("mountbreed/cooldown/")
	cooldownIndexKey   = []byte("mountbreed/cooldown-index")
)

func prefixedKey(prefix []byte, addr []byte) []byte {
	buf := make([]byte, len(prefix)+len(addr))
	copy(buf, prefix)
	copy(buf[len(prefix):], addr)
	return buf
}
