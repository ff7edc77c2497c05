// Package store provides persistent CredentialStore backends: a JSON file
// store for single-device installs and a Redis store for shared or kiosk
// deployments. The in-memory default lives in the root package.
package store
