package sealevel

const (
	CUSha256BaseCost                     = 85
	CUSha256ByteCost                     = 1
	CUCreateProgramAddressUnits          = 1500
	CUInvokeUnits                        = 1000
	CUSystemProgramDefaultComputeUnits   = 150
	CUTokenProgramDefaultComputeUnits    = 3000
	CUStakePoolProgramDefaultComputeUnit = 4500
)
