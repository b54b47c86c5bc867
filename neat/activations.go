package neat

import (
	"fmt"
	"math"
)

// ActivationType defines the type for activation functions.
type ActivationType func(x float64) float64

// ActivationFunctions maps function names to the actual activation functions.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"absolute": Absolute,
	"abs":      Absolute,
	"sine":     Sine,
	"cosine":   Cosine,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// --- Standard Activation Function Implementations ---

// Sigmoid is the logistic function with the steepness used by classic NEAT.
// The node response scales the input before activation.
func Sigmoid(x float64) float64 {
	const k = 4.9
	return 1.0 / (1.0 + math.Exp(-k*clamp(x, -60, 60)))
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Identity activation function (linear).
func Identity(x float64) float64 {
	return x
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Gaussian activation function.
func Gaussian(x float64) float64 {
	return math.Exp(-x * x / 2.0)
}

// Absolute value activation function.
func Absolute(x float64) float64 {
	return math.Abs(x)
}

// Sine activation function.
func Sine(x float64) float64 {
	return math.Sin(x)
}

// Cosine activation function.
func Cosine(x float64) float64 {
	return math.Cos(x)
}

// Inv (Inverse) activation function.
func Inv(x float64) float64 {
	if x == 0.0 {
		return 0.0
	}
	return 1.0 / x
}

// Log activation function (natural logarithm).
func Log(x float64) float64 {
	return math.Log(math.Max(1e-7, x))
}

// Exp activation function (e^x).
func Exp(x float64) float64 {
	return math.Exp(clamp(x, -60.0, 60.0))
}

// Hat activation function (triangular pulse centered at 0).
func Hat(x float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(x))
}

// Square activation function (x^2).
func Square(x float64) float64 {
	return x * x
}

// Cube activation function (x^3).
func Cube(x float64) float64 {
	return x * x * x
}
