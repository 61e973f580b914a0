package gpiouapi

const gpioGetChipinfoIoctl uintptr = 0x8044b401

const gpioV2GetLineinfoIoctl uintptr = 0xc100b405
const gpioV2GetLineIoctl uintptr = 0xc250b407
const gpioV2LineSetConfigIoctl uintptr = 0xc110b40d
const gpioV2LineGetValuesIoctl uintptr = 0xc010b40e
const gpioV2LineSetValuesIoctl uintptr = 0xc010b40f

// MaxLines is the maximum number of lines one request can claim.
const MaxLines = 64

// MaxConfigAttrs is the maximum number of configuration attributes
// one request can carry.
const MaxConfigAttrs = 10

type LineFlag uint64

const LineFlagUsed LineFlag = 0x0001
const LineFlagActiveLow LineFlag = 0x0002
const LineFlagInput LineFlag = 0x0004
const LineFlagOutput LineFlag = 0x0008
const LineFlagEdgeRising LineFlag = 0x0010
const LineFlagEdgeFalling LineFlag = 0x0020
const LineFlagOpenDrain LineFlag = 0x0040
const LineFlagOpenSource LineFlag = 0x0080
const LineFlagBiasPullUp LineFlag = 0x0100
const LineFlagBiasPullDown LineFlag = 0x0200
const LineFlagBiasDisabled LineFlag = 0x0400

type LineAttrID uint32

const LineAttrIDFlags LineAttrID = 1
const LineAttrIDOutputValues LineAttrID = 2
const LineAttrIDDebounce LineAttrID = 3

type LineEventID uint32

const LineEventRisingEdge LineEventID = 1
const LineEventFallingEdge LineEventID = 2
