package service

// ExportedSaveGuard lets the service_test package exercise the guard.
type ExportedSaveGuard = saveGuard
