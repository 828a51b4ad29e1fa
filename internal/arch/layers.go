package arch

import (
	"fmt"

	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/tensor"
)

// LayerBackend is the set of capabilities the standard layers need.
type LayerBackend interface {
	tensor.Backend
	nn.ReLUBackend
	nn.LeakyReLUBackend
	nn.SigmoidBackend
	nn.TanhBackend
	nn.SiLUBackend
	nn.GELUBackend
	nn.LayerNormBackend
	nn.AvgPool2DBackend
}

// NewDefaultRegistry returns a registry holding the standard layers under
// their torch.nn names: Linear, Conv2d, MaxPool2d, AvgPool2d, Flatten,
// Identity, Dropout, ReLU, LeakyReLU, Sigmoid, Tanh, SiLU, GELU, Softmax and
// LayerNorm. Argument names and defaults follow torch.nn as well.
func NewDefaultRegistry[B LayerBackend]() *Registry[B] {
	r := NewRegistry[B]()
	r.MustRegister("Linear", linearFactory[B])
	r.MustRegister("Conv2d", conv2dFactory[B])
	r.MustRegister("MaxPool2d", maxPool2dFactory[B])
	r.MustRegister("AvgPool2d", avgPool2dFactory[B])
	r.MustRegister("Flatten", flattenFactory[B])
	r.MustRegister("Identity", identityFactory[B])
	r.MustRegister("Dropout", dropoutFactory[B])
	r.MustRegister("ReLU", activationFactory[B]("ReLU", nn.NewReLU[B]))
	r.MustRegister("Sigmoid", activationFactory[B]("Sigmoid", nn.NewSigmoid[B]))
	r.MustRegister("Tanh", activationFactory[B]("Tanh", nn.NewTanh[B]))
	r.MustRegister("SiLU", activationFactory[B]("SiLU", nn.NewSiLU[B]))
	r.MustRegister("GELU", geluFactory[B])
	r.MustRegister("LeakyReLU", leakyReLUFactory[B])
	r.MustRegister("Softmax", softmaxFactory[B])
	r.MustRegister("LayerNorm", layerNormFactory[B])
	return r
}

// construct runs a layer constructor, turning its panics into a
// *ConstructionError.
func construct[B tensor.Backend](layer string, fn func() nn.Module[B]) (m nn.Module[B], err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, &ConstructionError{Name: layer, Err: fmt.Errorf("%v", r)}
		}
	}()
	return fn(), nil
}

type linearArgs struct {
	InFeatures  int  `mapstructure:"in_features"`
	OutFeatures int  `mapstructure:"out_features"`
	Bias        bool `mapstructure:"bias"`
}

func linearFactory[B LayerBackend](env Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := linearArgs{Bias: true}
	if err := decodeArgs("Linear", args, &cfg, "in_features", "out_features"); err != nil {
		return nil, err
	}
	return construct("Linear", func() nn.Module[B] {
		return nn.NewLinear(cfg.InFeatures, cfg.OutFeatures, cfg.Bias, env.Backend, env.Source)
	})
}

type conv2dArgs struct {
	InChannels  int    `mapstructure:"in_channels"`
	OutChannels int    `mapstructure:"out_channels"`
	KernelSize  [2]int `mapstructure:"kernel_size"`
	Stride      [2]int `mapstructure:"stride"`
	Padding     [2]int `mapstructure:"padding"`
	Bias        bool   `mapstructure:"bias"`
}

func conv2dFactory[B LayerBackend](env Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := conv2dArgs{Stride: [2]int{1, 1}, Bias: true}
	if err := decodeArgs("Conv2d", args, &cfg, "in_channels", "out_channels", "kernel_size"); err != nil {
		return nil, err
	}
	return construct("Conv2d", func() nn.Module[B] {
		return nn.NewConv2D(cfg.InChannels, cfg.OutChannels, cfg.KernelSize, cfg.Stride, cfg.Padding,
			cfg.Bias, env.Backend, env.Source)
	})
}

type pool2dArgs struct {
	KernelSize [2]int  `mapstructure:"kernel_size"`
	Stride     *[2]int `mapstructure:"stride"` // defaults to kernel_size
	Padding    [2]int  `mapstructure:"padding"`
}

func (a pool2dArgs) stride() [2]int {
	if a.Stride == nil {
		return a.KernelSize
	}
	return *a.Stride
}

func maxPool2dFactory[B LayerBackend](env Env[B], args map[string]any) (nn.Module[B], error) {
	var cfg pool2dArgs
	if err := decodeArgs("MaxPool2d", args, &cfg, "kernel_size"); err != nil {
		return nil, err
	}
	return construct("MaxPool2d", func() nn.Module[B] {
		return nn.NewMaxPool2D(cfg.KernelSize, cfg.stride(), cfg.Padding, env.Backend)
	})
}

func avgPool2dFactory[B LayerBackend](_ Env[B], args map[string]any) (nn.Module[B], error) {
	var cfg pool2dArgs
	if err := decodeArgs("AvgPool2d", args, &cfg, "kernel_size"); err != nil {
		return nil, err
	}
	return construct("AvgPool2d", func() nn.Module[B] {
		return nn.NewAvgPool2D[B](cfg.KernelSize, cfg.stride(), cfg.Padding)
	})
}

type flattenArgs struct {
	StartDim int `mapstructure:"start_dim"`
	EndDim   int `mapstructure:"end_dim"`
}

func flattenFactory[B LayerBackend](_ Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := flattenArgs{StartDim: 1, EndDim: -1}
	if err := decodeArgs("Flatten", args, &cfg); err != nil {
		return nil, err
	}
	return nn.NewFlatten[B](cfg.StartDim, cfg.EndDim), nil
}

// identityFactory ignores its arguments, as torch.nn.Identity does.
func identityFactory[B LayerBackend](Env[B], map[string]any) (nn.Module[B], error) {
	return nn.NewIdentity[B](), nil
}

type dropoutArgs struct {
	P       float32 `mapstructure:"p"`
	Inplace bool    `mapstructure:"inplace"`
}

func dropoutFactory[B LayerBackend](_ Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := dropoutArgs{P: 0.5}
	if err := decodeArgs("Dropout", args, &cfg); err != nil {
		return nil, err
	}
	return construct("Dropout", func() nn.Module[B] {
		return nn.NewDropout[B](cfg.P)
	})
}

type inplaceArgs struct {
	Inplace bool `mapstructure:"inplace"`
}

// activationFactory returns a factory for an activation without
// parameters. "inplace" is accepted for compatibility; modules never
// modify their input.
func activationFactory[B LayerBackend, M nn.Module[B]](layer string, newFn func() M) Factory[B] {
	return func(_ Env[B], args map[string]any) (nn.Module[B], error) {
		var cfg inplaceArgs
		if err := decodeArgs(layer, args, &cfg); err != nil {
			return nil, err
		}
		return newFn(), nil
	}
}

type leakyReLUArgs struct {
	NegativeSlope float32 `mapstructure:"negative_slope"`
	Inplace       bool    `mapstructure:"inplace"`
}

func leakyReLUFactory[B LayerBackend](_ Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := leakyReLUArgs{NegativeSlope: 0.01}
	if err := decodeArgs("LeakyReLU", args, &cfg); err != nil {
		return nil, err
	}
	return nn.NewLeakyReLU[B](cfg.NegativeSlope), nil
}

type geluArgs struct {
	Approximate string `mapstructure:"approximate"`
}

func geluFactory[B LayerBackend](_ Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := geluArgs{Approximate: "none"}
	if err := decodeArgs("GELU", args, &cfg); err != nil {
		return nil, err
	}
	if cfg.Approximate != "none" {
		return nil, &ConstructionError{Name: "GELU", Err: fmt.Errorf("unsupported approximate mode %q", cfg.Approximate)}
	}
	return nn.NewGELU[B](), nil
}

type softmaxArgs struct {
	Dim int `mapstructure:"dim"`
}

func softmaxFactory[B LayerBackend](_ Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := softmaxArgs{Dim: -1}
	if err := decodeArgs("Softmax", args, &cfg); err != nil {
		return nil, err
	}
	return nn.NewSoftmax[B](cfg.Dim), nil
}

type layerNormArgs struct {
	NormalizedShape   []int   `mapstructure:"normalized_shape"`
	Eps               float32 `mapstructure:"eps"`
	ElementwiseAffine bool    `mapstructure:"elementwise_affine"`
	Bias              bool    `mapstructure:"bias"`
}

func layerNormFactory[B LayerBackend](env Env[B], args map[string]any) (nn.Module[B], error) {
	cfg := layerNormArgs{Eps: 1e-5, ElementwiseAffine: true, Bias: true}
	if err := decodeArgs("LayerNorm", args, &cfg, "normalized_shape"); err != nil {
		return nil, err
	}
	return construct("LayerNorm", func() nn.Module[B] {
		return nn.NewLayerNorm(tensor.Shape(cfg.NormalizedShape), cfg.Eps, cfg.ElementwiseAffine, cfg.Bias, env.Backend)
	})
}
