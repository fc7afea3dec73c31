// Package service contains the business logic.
//
// It sits between callers and the repository layer. It turns raw
// payloads into entities, hashes passwords, calls repository methods
// and schedules follow-up background work.
package service
