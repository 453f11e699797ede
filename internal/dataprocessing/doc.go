// Package dataprocessing turns an input spreadsheet into the yearly time series fed to the
// forecaster.
//
// The Loader reads .xlsx workbooks through excelize (CSV exports are accepted as well), locates
// the publication date column by header name and drops every row whose date cannot be
// interpreted. CountByYear and ToTimeSeries then aggregate the surviving records into one
// point per calendar year, dated Jan 1.
package dataprocessing
