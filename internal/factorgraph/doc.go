// Package factorgraph is the inference backend behind the belief network. It
// knows nothing about Bayesian networks; it only offers the primitives a
// model compiler needs:
//
//   - Variable: a categorical variable with a fixed number of states.
//   - EnumFactor: a factor over an ordered list of variables, given as an
//     explicit list of joint configurations paired with log-potentials.
//     Configurations that are not listed are impossible.
//   - Graph: the aggregate of variables and factors. Variables get a global
//     index in insertion order, and every flat per-state vector (evidence,
//     beliefs) is laid out in that order.
//   - Evidence: a flat vector of log-space unary potentials aligned with the
//     graph's variable ordering.
//   - BP: a damped loopy belief propagation solver working in log space.
//   - Beliefs and their normalization into marginals.
//
// # Message passing
//
// BP uses a flooding schedule. Each iteration first computes every
// variable's belief (evidence plus all incoming factor-to-variable messages),
// then recomputes every factor-to-variable message from those beliefs:
//
//	m'(f→v)[k] = T · log Σ_{c : c_v = k} exp((φ_f(c) + Σ_{u≠v} n(u→f)[c_u]) / T)
//	n(u→f)     = belief(u) − m(f→u)
//
// New messages are normalized so that their maximum is zero, clipped at
// NegInf, and damped against the previous message:
//
//	m(f→v) = δ · m_old(f→v) + (1 − δ) · m'(f→v)
//
// A temperature T of 1 gives sum-product, 0 gives max-product. A message whose
// every entry is impossible falls back to uniform. The solver always runs the
// requested number of iterations; the largest message change of the final
// iteration is reported as the residual.
package factorgraph
