package csvcodec

// Upload size and row limits for CSV imports.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)
