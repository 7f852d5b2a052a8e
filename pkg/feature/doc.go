// Package feature provides boolean runtime feature flags.
//
// The Provider interface abstracts flag storage so applications can start
// with the in-memory implementation and move to a backed store without
// touching call sites. Flags gate whole code paths; the subscription
// creation endpoint, for example, refuses requests while its flag is off.
//
//	flags, _ := feature.NewMemoryProvider(&feature.Flag{Name: "subscription", Enabled: true})
//	on, err := flags.IsEnabled(ctx, "subscription")
package feature
