package internal

const (
	SHA256Algorithm = "sha256"
	XXH64Algorithm  = "xxh64"
)
