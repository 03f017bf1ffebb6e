// package models defines the data model for the podcast playlist builder.
//
// Transient refresh types (Episode, Candidate, Playlist) are plain DTOs
// exchanged between the services and tasks layers. Persistent types
// implement the Model interface and are stored via internal/repositories.
package models
