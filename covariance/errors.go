// SPDX-License-Identifier: MIT

package covariance

import (
	"fmt"

	"github.com/katalvlaran/hcov"
)

// Error kinds returned by this package; aliases of the module root sentinels.
var (
	ErrInvalidArgument     = hcov.ErrInvalidArgument
	ErrInvalidDimension    = hcov.ErrInvalidDimension
	ErrNotPositiveDefinite = hcov.ErrNotPositiveDefinite
	ErrNotYetImplemented   = hcov.ErrNotYetImplemented
)

// Operation tags.
const (
	opNew                  = "covariance.New"
	opEvaluate             = "covariance.Evaluate"
	opPartialGradient      = "covariance.PartialGradient"
	opParameterGradient    = "covariance.ParameterGradient"
	opSetScale             = "covariance.SetScale"
	opSetAmplitude         = "covariance.SetAmplitude"
	opSetCorrelation       = "covariance.SetOutputCorrelation"
	opSetCovariance        = "covariance.SetOutputCovariance"
	opSetNugget            = "covariance.SetNuggetFactor"
	opSetFullParameter     = "covariance.SetFullParameter"
	opSetParameter         = "covariance.SetParameter"
	opSetActive            = "covariance.SetActiveParameter"
	opSetParametrization   = "covariance.SetScaleParametrization"
	opDiscretize           = "covariance.Discretize"
	opDiscretizeRow        = "covariance.DiscretizeRow"
	opDiscretizeFactorize  = "covariance.DiscretizeAndFactorize"
	opDiscretizeHMatrix    = "covariance.DiscretizeHMatrix"
	opCrossCovariance      = "covariance.ComputeCrossCovariance"
	opAssemblyFunction     = "covariance.NewAssemblyFunction"
	opSave                 = "covariance.Save"
	opLoad                 = "covariance.Load"
	opOutputCovarianceChol = "covariance.OutputCovarianceCholesky"
)

// covErrorf wraps err with an operation tag. err must be non-nil.
func covErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
