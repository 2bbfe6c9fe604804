package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/E-Coombs/arch-setup/internal/version.Version=...
	Commit  = "unknown" // -X github.com/E-Coombs/arch-setup/internal/version.Commit=...
	Date    = "unknown" // -X github.com/E-Coombs/arch-setup/internal/version.Date=...
)
