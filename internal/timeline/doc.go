// Package timeline builds the "music timeline": for each of three listening windows it summarizes
// the user's top tracks into averaged audio features, a top-genre ranking and a short track list.
//
// Every provider call made while building is captured as an [Outcome]. Successful values feed the
// summary; failures are appended to the [Report] and the build moves on to the next item, so one bad
// track or artist never costs the whole window, and one bad window never costs the others.
package timeline
