// Package domain contains the entities the monitor works with: bounty
// programs as published by a platform feed, and the normalized assets that
// are diffed, announced and persisted between runs.
package domain
