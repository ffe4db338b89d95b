package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCache         = Blue + "[Cache]" + Reset
	LogCacheCaptions = Green + "[Cache:Captions]" + Reset
	LogCacheFailure  = Cyan + "[Cache:Failure]" + Reset
	LogCacheClear    = Blue + "[Cache:Clear]" + Reset
	LogCacheJanitor  = Blue + "[Cache:Janitor]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
)

// Upstream fetch log prefixes
const (
	LogUpstream = Cyan + "[Upstream]" + Reset
	LogCaptions = Blue + "[Captions]" + Reset
	LogParser   = Cyan + "[Parser]" + Reset
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}
