package broker

import "strconv"

// Outbound message type codes, from ibapi.message.OUT (approximate IDs
// preserved from the wire protocol the source's EClient subclasses send).
const (
	outReqAccountSummary  = "62"
	outReqHistoricalData  = "20"
	outReqRealTimeBars    = "50"
	outReqHistoricalTicks = "96"
	outReqContractData    = "9"
	outReqMktData         = "1"
)

// RequestAccountSummary requests account tag/value pairs for the given
// group — the source's req_account_summary.
func (c *Conn) RequestAccountSummary(reqID int32, group, tags string) error {
	return c.Send(outReqAccountSummary, "1", strconv.Itoa(int(reqID)), group, tags)
}

// RequestHistoricalData requests historical bars for contract — the
// source's req_historical_data. Non-streaming: the reader dispatches one
// accumulated Response per reqID, flushed on the upstream end-of-data
// sentinel.
func (c *Conn) RequestHistoricalData(reqID int32, contract Contract, endDate, durationStr, barSize, whatToShow string, useRTH, keepUpToDate bool) error {
	fields := append([]string{outReqHistoricalData, "6", strconv.Itoa(int(reqID))}, contract.Fields()...)
	fields = append(fields, endDate, durationStr, barSize, boolField(useRTH), whatToShow, boolField(keepUpToDate), "")
	return c.Send(fields...)
}

// RequestHistoricalTicks requests tick-level time-and-sales data — the
// source's req_historical_ticks.
func (c *Conn) RequestHistoricalTicks(reqID int32, contract Contract, startDate, endDate string, numberOfTicks int, whatToShow string, useRTH bool) error {
	fields := append([]string{outReqHistoricalTicks, strconv.Itoa(int(reqID))}, contract.Fields()...)
	fields = append(fields, startDate, endDate, strconv.Itoa(numberOfTicks), whatToShow, boolField(useRTH), "true", "")
	return c.Send(fields...)
}

// RequestRealtimeBars subscribes to 5-second realtime bars — the source's
// req_real_time_bars. Streaming: the reader dispatches one Response per
// inbound bar rather than accumulating.
func (c *Conn) RequestRealtimeBars(reqID int32, contract Contract, barSize int, whatToShow string, useRTH bool) error {
	fields := append([]string{outReqRealTimeBars, "3", strconv.Itoa(int(reqID))}, contract.Fields()...)
	fields = append(fields, strconv.Itoa(barSize), whatToShow, boolField(useRTH), "")
	return c.Send(fields...)
}

// RequestContractDetails requests the full contract metadata record — the
// source's req_contract_details.
func (c *Conn) RequestContractDetails(reqID int32, contract Contract) error {
	fields := append([]string{outReqContractData, "8", strconv.Itoa(int(reqID))}, contract.Fields()...)
	return c.Send(fields...)
}

// RequestMarketData subscribes to realtime top-of-book/tick market data —
// the source's req_market_data/reqMktData. Streaming: the reader dispatches
// one Response per inbound tick rather than accumulating. genericTickList
// requests additional tick types beyond the default set (empty for none);
// snapshot requests a single snapshot instead of a standing subscription.
func (c *Conn) RequestMarketData(reqID int32, contract Contract, genericTickList string, snapshot, regulatorySnapshot bool) error {
	fields := append([]string{outReqMktData, "11", strconv.Itoa(int(reqID))}, contract.Fields()...)
	fields = append(fields, boolField(false), genericTickList, boolField(snapshot), boolField(regulatorySnapshot), "")
	return c.Send(fields...)
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
