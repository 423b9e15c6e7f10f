// Package model assembles the face enhancement GAN.
//
// The generator is an encoder/decoder over residual blocks that maps a
// source photo to an enhanced version of itself; the discriminator scores
// images as real or generated. Both are described with a small graph
// builder (Net) that block helpers mutate in place:
//
//	net := model.NewNet("generator", input, backend)
//	model.ResidualBlock(net, 48, 3, 2)
//	net.AddAvgPool()
//	out := net.Output()
//
// Build wires the full training bundle around one batch: generator forward,
// instance noise, two discriminator passes sharing one set of weights, the
// blended generator loss, the discriminator loss, and one Adam optimizer
// per network. A single scalar, the annealing factor decaying from 1
// toward 0, schedules the noise magnitude, the pixel/adversarial loss
// blend and the learning rate.
package model
