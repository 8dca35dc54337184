// Package components defines ECS components for the simulation.
//
// A rabbit is an entity carrying Position, Energy and Organism. Ground is not
// an entity; it lives in a dense grid owned by the systems package.
package components
