// Package fftconv provides the linear convolution kernels behind the
// smoothing filters.
//
// Short kernels run as a direct time-domain sum built on algo-vecmath block
// operations. Long kernels, such as the ~1000-tap Savitzky–Golay windows used
// for detrending, run as FFT overlap-add on algo-fft plans.
package fftconv

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput  = errors.New("fftconv: empty input")
	ErrEmptyKernel = errors.New("fftconv: empty kernel")
)

// DirectThreshold is the kernel length above which [Convolve] switches to
// overlap-add.
const DirectThreshold = 64

// Convolve returns the full linear convolution of signal and kernel, of
// length len(signal)+len(kernel)-1.
func Convolve(signal, kernel []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if len(kernel) <= DirectThreshold {
		return Direct(signal, kernel), nil
	}
	return OverlapAdd(signal, kernel)
}

// Valid returns only the outputs where kernel fully overlaps signal,
// of length len(signal)-len(kernel)+1. It requires len(signal) >= len(kernel).
func Valid(signal, kernel []float64) ([]float64, error) {
	if len(signal) < len(kernel) {
		return nil, fmt.Errorf("fftconv: signal shorter than kernel: %d < %d", len(signal), len(kernel))
	}
	full, err := Convolve(signal, kernel)
	if err != nil {
		return nil, err
	}
	return full[len(kernel)-1 : len(signal)], nil
}

// Direct performs time-domain convolution.
//
// The kernel is scaled by each input sample and accumulated into the output
// with vectorised block operations.
func Direct(signal, kernel []float64) []float64 {
	n, m := len(signal), len(kernel)
	out := make([]float64, n+m-1)
	temp := make([]float64, m)
	for i := 0; i < n; i++ {
		vecmath.ScaleBlock(temp, kernel, signal[i])
		vecmath.AddBlockInPlace(out[i:i+m], temp)
	}
	return out
}

// OverlapAdd performs FFT block convolution.
//
// The input is cut into blocks of roughly the kernel length, each block is
// zero-padded to a power-of-two FFT size, multiplied with the kernel spectrum,
// transformed back, and added into the output at its offset.
func OverlapAdd(signal, kernel []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	kernelLen := len(kernel)
	blockSize := max(nextPowerOf2(kernelLen), 256)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fftconv: failed to create FFT plan: %w", err)
	}

	kernelFFT := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelFFT[i] = complex(v, 0)
	}
	if err := plan.Forward(kernelFFT, kernelFFT); err != nil {
		return nil, fmt.Errorf("fftconv: failed to compute kernel FFT: %w", err)
	}

	outputLen := len(signal) + kernelLen - 1
	output := make([]float64, outputLen)
	block := make([]complex128, fftSize)

	for start := 0; start < len(signal); start += blockSize {
		end := min(start+blockSize, len(signal))

		for i := range block {
			block[i] = 0
		}
		for i := start; i < end; i++ {
			block[i-start] = complex(signal[i], 0)
		}

		if err := plan.Forward(block, block); err != nil {
			return nil, fmt.Errorf("fftconv: forward FFT failed: %w", err)
		}
		for i := range block {
			block[i] *= kernelFFT[i]
		}
		if err := plan.Inverse(block, block); err != nil {
			return nil, fmt.Errorf("fftconv: inverse FFT failed: %w", err)
		}

		resultLen := end - start + kernelLen - 1
		for i := 0; i < resultLen && start+i < outputLen; i++ {
			output[start+i] += real(block[i])
		}
	}

	return output, nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
