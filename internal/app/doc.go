// Package app contains the demo application. It loads inference settings,
// builds the classic cloudy/sprinkler/rain/wet-grass network with and
// without observations, runs both concurrently and prints the marginals. It
// is decoupled from the command line so tests can drive it directly.
package app
