// Package infra contains technical adapters such as the round service
// client and the table loaders. These packages should depend only on the
// interfaces defined in the core packages.
package infra
