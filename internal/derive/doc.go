// Package derive computes the guide's derived views from a master
// snapshot.
//
// Every function is pure: it reads a model.Master and selection values
// passed as parameters, never mutates its inputs and holds no state.
// Results are fresh slices; callers may modify them freely. Element
// structs are copies, but slice fields inside them (SpeakerIDs, Hashtags)
// share backing arrays with the input.
package derive
