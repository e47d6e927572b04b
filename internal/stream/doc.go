// Package stream contains the generation events produced by an agent
// runtime, the Source interface that produces them, and the extractor that
// turns token events into user-visible text fragments.
package stream
