package model

// Genre is a movie genre such as "Drama".
type Genre struct {
	ID   uint64 `json:"id"`   // genres.id
	Name string `json:"name"` // genres.name (unique)
}

// Actor is a person credited in movies.  FullName is derived and never
// stored.
type Actor struct {
	ID        uint64 `json:"id"`         // actors.id
	FirstName string `json:"first_name"` // actors.first_name
	LastName  string `json:"last_name"`  // actors.last_name
}

// FullName joins first and last name with a single space.
func (a Actor) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Movie describes a film that can be scheduled in sessions.  Genres and
// Actors hold the many-to-many links; they are only populated by the
// repository methods that load relations.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – movie title.
//  Description – free text synopsis.
//  Duration    – running time in minutes.
//  Genres      – linked genres (movie_genres).
//  Actors      – linked actors (movie_actors).
type Movie struct {
	ID          uint64  // movies.id
	Title       string  // movies.title
	Description string  // movies.description
	Duration    int     // movies.duration
	Genres      []Genre // movie_genres
	Actors      []Actor // movie_actors
}
