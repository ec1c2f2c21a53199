// Package rallyhere provides a client for the RallyHere environment API as
// used by SMITE 2.
//
// # Architecture
//
// Every request flows through the same layers:
//
//   - TokenManager: client-credentials tokens, refreshed shortly before expiry
//   - Transport: HTTP execution with exponential backoff on 429 and network errors
//   - cache.Cache: insert-if-absent memoization of raw responses
//   - FetchAll: cursor pagination over list endpoints
//
// The Client composes them into player lookup, match history, stats, rank
// and full profile operations. Results are normalized by package smite.
//
// # Usage
//
//	cfg := rallyhere.DefaultConfig()
//	cfg.ClientID = os.Getenv("CLIENT_ID")
//	cfg.ClientSecret = os.Getenv("CLIENT_SECRET")
//	cfg.BaseURL = os.Getenv("RH_BASE_URL")
//
//	client, err := rallyhere.New(cfg, logger, rallyhere.WithItems(items))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	matches, err := client.MatchesByPlayer(ctx, playerUUID, 10, 100)
//
// # Error Handling
//
//   - ConfigurationError: invalid settings, reported before any request
//   - AuthenticationError: the token endpoint refused or failed
//   - TransportError: non-retryable status, undecodable body or exhausted network retries
//   - RateLimitExceededError: every attempt was rate limited
//   - PaginationError: a page of a list failed; no partial result is returned
//
// Transport errors include helper methods for classification:
//
//	var te *rallyhere.TransportError
//	if errors.As(err, &te) && te.IsNotFound() {
//		// unknown player
//	}
package rallyhere
