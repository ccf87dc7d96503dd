// Package browser drives Chromium through Playwright for forum browsing.
//
// A Manager owns one Playwright driver, one browser and one isolated
// context. The context carries the session cookies obtained at login, so
// every Tab opened from it is already authenticated.
//
// # Lifecycle
//
//  1. Initialize installs (if needed) and starts the Playwright driver
//  2. Launch starts Chromium and creates the context and home tab
//  3. AddCookies copies the login session into the context
//  4. NewTab opens one tab per visited topic; callers close it when done
//  5. Shutdown closes everything, including tabs still open
//
// Tab implements pacing.Surface: element, count and scroll-metric queries
// are answered by small scripts evaluated in the page.
//
// # Example Usage
//
//	m := browser.NewManager(log)
//	if err := m.Initialize(); err != nil {
//	    return err
//	}
//	defer m.Shutdown()
//	if err := m.Launch(browser.DefaultLaunchOptions()); err != nil {
//	    return err
//	}
//	tab, err := m.NewTab()
//	if err != nil {
//	    return err
//	}
//	defer tab.Close()
//	err = tab.Navigate(ctx, "https://linux.do/t/topic/1", browser.NavigateOptions{})
package browser
