// Package store contient les accès ScyllaDB typés du service.
// Toute ligne lue est mappée explicitement vers les structs de
// internal/models — aucune donnée faiblement typée ne remonte plus haut.
package store

import "errors"

// ErrNotFound est retourné quand l'enregistrement demandé n'existe pas.
var ErrNotFound = errors.New("enregistrement introuvable")
