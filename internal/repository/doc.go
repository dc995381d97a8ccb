// Package repository persists accounts and dependents.
//
// [Postgres] stores them through GORM; [Memory] keeps them in process for
// tests and local runs. Both report absence with the careauth not-found
// sentinels and duplicates with careauth.ErrConflict.
package repository
